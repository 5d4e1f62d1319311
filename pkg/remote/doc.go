/*
Package remote is kestrel's optional, read-only control surface (SPEC_FULL.md
§9, supplemented from the original implementation's client/server split —
original_source/server/src/connection.rs and
client/src/connection/broadcast_processor.rs). A Hub upgrades HTTP
connections to websockets at /v1/stream and broadcasts two kinds of event to
every connected client: new OutputLines as they're added to the Output
Store, and block status changes, sampled the way pkg/metrics.Collector
samples its StatsSource.

It has no bearing on the core engine's correctness: nothing in pkg/system
reads anything back from pkg/remote, and with no client connected the Hub
costs its three background goroutines (output pump, 250ms status poll and
client registry). It is off by default —
cmd/kestrel only starts it when given --remote-addr.
*/
package remote
