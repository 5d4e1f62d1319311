/*
Package types is kestrel's data model: services, blocks, requirements, work,
automations, profiles and tasks, plus the status and output types the rest of
the engine operates on. It mirrors the shape of cuemby-warren/pkg/types — plain
structs, string-based enum consts, no behavior beyond small value helpers — but
describes a local service orchestrator's domain instead of a cluster's.
*/
package types
