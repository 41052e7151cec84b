// Package talentrag is a Go client for the talentrag HTTP API.
//
// The API key decides the caller role: candidate keys get redacted
// résumés, recruiter and admin keys see personal info.
//
//	client, _ := talentrag.New("http://localhost:8080",
//	    talentrag.WithAPIKey(os.Getenv("TALENTRAG_API_KEY")),
//	)
//	res, _ := client.Search(ctx, talentrag.SearchRequest{
//	    Query:   "senior Go engineer with Kubernetes",
//	    K:       5,
//	    Filters: &talentrag.Filters{ExperienceLevel: "senior"},
//	})
//	for _, hit := range res.Documents {
//	    fmt.Println(hit.Document.ID, hit.Similarity)
//	}
//
// Errors returned by the server unwrap to the sentinels in errors.go:
//
//	if errors.Is(err, talentrag.ErrNotFound) { ... }
package talentrag
