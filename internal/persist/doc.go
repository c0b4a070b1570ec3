// Package persist commits record streams into object trees and replays
// object trees into record streams.
//
// A Registry maps each concrete type name to its Helper. A Factory, one per
// session, dispatches to those Helpers and threads the Converter, the
// session's Sink and the commit Pass through every call.
//
// Committing an ObjectRecord runs these steps in the Helper:
//
//  1. return the instance if the id is already loaded in the pass
//  2. take the constructor-required properties from the staged records,
//     in declared order, converting each to its rich value
//  3. construct the instance and assign the record's id
//  4. commit the child records, grouped by child type and in ascending
//     index, attaching each to the new instance; a failing child does not
//     stop its siblings or discard the instance
//  5. apply the remaining staged properties in arrival order, skipping
//     names the type does not declare as mutable
//  6. mark the id loaded
//
// Factory.Commit holds back a record whose staged references name objects
// of the same stream that are not loaded yet, and retries it once the rest
// of the stream is committed. A record still waiting when nothing else can
// be committed is committed anyway and fails on its unresolved reference.
//
// Replaying an object emits its ObjectRecord followed by one PropertyRecord
// per persistable property in a fixed order, so an unchanged object always
// replays to the same records.
package persist
