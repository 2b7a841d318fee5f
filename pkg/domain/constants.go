package domain

// Metadata keys written by the engine when a trial is flattened into a record.
// Factors must not use them.
const (
	KeyBlock       = "block"
	KeyBlockName   = "blockName"
	KeyBlockIndex  = "blockIndex"
	KeyCycle       = "cycle"
	KeyTrialNumber = "trialNumber"
)

// IsReservedFactor reports whether name collides with engine metadata.
func IsReservedFactor(name string) bool {
	switch name {
	case KeyBlock, KeyBlockName, KeyBlockIndex, KeyCycle, KeyTrialNumber:
		return true
	}
	return false
}
