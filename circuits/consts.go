package circuits

// circuit names, used in shape identifiers, storage keys and constraint
// violation errors
const (
	NameMacroBlock = "macroblock"
	NameWrapper    = "wrapper"
	NameMergerA    = "merger_a"
	NameMergerB    = "merger_b"
	NameDummy      = "dummy"
)

// used across different circuits
const (
	// BlockPublicInputs is the number of public inputs of block and wrapper
	// proofs: previous state, new state and height.
	BlockPublicInputs = 3
	// AggregatePublicInputs is the number of public inputs of merger and
	// dummy proofs: genesis state, state, height and merger A digest.
	AggregatePublicInputs = 4
	// DefaultValidators is the default committee capacity.
	DefaultValidators = 4
)
