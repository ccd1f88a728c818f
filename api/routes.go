package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// StateEndpoint is the endpoint to get the latest proven state and its
	// aggregate proof
	StateEndpoint = "/state"
	// ExportEndpoint is the endpoint to get everything a light client needs
	// to verify the latest state
	ExportEndpoint = "/export"
	// KeysEndpoint is the endpoint to get the verifying key of a merger role
	RoleURLParam = "role"
	KeysEndpoint = "/keys/{" + RoleURLParam + "}"
	// CheckpointEndpoint is the endpoint to get the inclusion proof of the
	// state commitment of a height in the checkpoint tree
	HeightURLParam     = "height"
	CheckpointEndpoint = "/checkpoints/{" + HeightURLParam + "}"
	// ArtifactsEndpoint is the endpoint to download a key artifact of the
	// node cache by its content hash. It is the artifacts URL other provers
	// fetch the keys from.
	HashURLParam      = "hash"
	ArtifactsEndpoint = "/artifacts/{" + HashURLParam + "}"
)
