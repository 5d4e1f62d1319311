package types

// ServiceId, BlockId and TaskDefinitionId are short opaque strings, unique
// within their scope (service ids across a profile, block ids within a
// service, task definition ids within whichever scope defines them).
type (
	ServiceId        string
	BlockId          string
	TaskDefinitionId string
	TaskId           string
)
