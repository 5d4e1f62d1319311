/*
Package automation implements the Automation Scheduler (spec.md §4.11): a
pending-effect queue fed by pkg/watch and pkg/trigger, drained on each
dispatch pass. The pending-queue type and its not_before debounce semantics
are novel — spec.md describes them directly and no example repo has an
analogous concept.

An effect resolves one of two ways, matching spec.md's "convert each effect
to the corresponding BlockAction (or task spawn)": a TaskReferenceAction (or
each expanded entry of a TaskReferenceListAction) spawns a tracked Task via
pkg/task.Registry; an InlineStepsAction made up entirely of script steps
runs synchronously through pkg/script's dispatching Executor instead,
letting an effect like "rerun(self, 'build')" land directly as a
SetBlockActionAction without the overhead of a tracked task. An
InlineStepsAction with non-script steps falls back to an anonymous inline
task, since that's the general case spec.md's "or inline steps" phrasing
also covers.
*/
package automation
