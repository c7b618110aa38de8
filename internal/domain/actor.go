package domain

// ActorType differentiates who performed a change.
type ActorType string

const (
	ActorTypeStaff      ActorType = "STAFF"
	ActorTypeTechnician ActorType = "TECHNICIAN"
	ActorTypeSystem     ActorType = "SYSTEM"
)
