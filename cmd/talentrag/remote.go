package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	talentrag "github.com/kailas-cloud/talentrag/pkg/sdk"
)

// remoteTimeout bounds one API call; answers are generated server-side.
const remoteTimeout = 2 * time.Minute

type (
	localFunc  func(ctx context.Context, a *application) (any, error)
	remoteFunc func(ctx context.Context, c *talentrag.Client) (any, error)
)

// dispatch runs a query command against --server when one is set, otherwise against
// a locally wired application. The result is printed as JSON either way.
func dispatch(cmd *cobra.Command, local localFunc, remote remoteFunc) error {
	if c, ok, err := remoteClient(); err != nil {
		return err
	} else if ok {
		resp, err := remote(cmd.Context(), c)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	}
	return withApplication(cmd, func(ctx context.Context, a *application) error {
		resp, err := local(ctx, a)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	})
}

// remoteClient builds an API client from --server and --api-key. ok is false when no server is set.
func remoteClient() (*talentrag.Client, bool, error) {
	server := viper.GetString("server")
	if server == "" {
		return nil, false, nil
	}
	c, err := talentrag.New(server,
		talentrag.WithAPIKey(viper.GetString("api-key")),
		talentrag.WithTimeout(remoteTimeout),
	)
	if err != nil {
		return nil, false, fmt.Errorf("remote client: %w", err)
	}
	return c, true, nil
}

// toSDK converts filter flags into the API filters object; nil when nothing is set.
func (f *filterFlags) toSDK() *talentrag.Filters {
	if f.tier == "" && f.location == "" && len(f.skills) == 0 && len(f.companies) == 0 && f.education == "" {
		return nil
	}
	return &talentrag.Filters{
		ExperienceLevel: f.tier,
		Location:        f.location,
		Skills:          f.skills,
		Companies:       f.companies,
		Education:       f.education,
	}
}
