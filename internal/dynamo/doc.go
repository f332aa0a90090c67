// Package dynamo provides the shared primitives of the granular engine.
//
// The package sits below every core package and holds only what they all
// need:
//
//   - [MinImage] and [Wrap]: periodic box arithmetic on one axis
//   - [Finite]: NaN/Inf guard for vectors
//   - [State]: flat sample rows used by metrics and storage
//   - [Shards]: contiguous work partitioning for the sharded force pass
//   - domain errors such as [ErrIndexInvariant] and [ErrResourceUnavailable]
//
// # Thread Safety
//
// Nothing in this package holds mutable shared state. [Shards] blocks
// until every shard returns.
package dynamo
