package types

// Profile is an activatable configuration: a workdir, the services it
// brings up and any profile-level task definitions (spec.md §3). Only one
// profile is active at a time.
type Profile struct {
	Id       ServiceId // profile ids and service ids share the opaque-string namespace
	Workdir  string
	Services []Service
	Tasks    []TaskDefinition
}

// Service looks up one of the profile's services by id.
func (p Profile) Service(id ServiceId) (Service, bool) {
	for _, s := range p.Services {
		if s.Id == id {
			return s, true
		}
	}
	return Service{}, false
}

// TaskDefinition looks up a profile-level task definition by id.
func (p Profile) TaskDefinition(id TaskDefinitionId) (TaskDefinition, bool) {
	for _, t := range p.Tasks {
		if t.Id == id {
			return t, true
		}
	}
	return TaskDefinition{}, false
}
