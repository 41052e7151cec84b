package domain

// KeyPrefix namespaces every key written to the key-value store.
const KeyPrefix = "talentrag:"

// DefaultMaxInputChars bounds the text sent to an embedding model.
const DefaultMaxInputChars = 8000
