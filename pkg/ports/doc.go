/*
Package ports defines the driven ports (interfaces) of the seedbed engine.

These interfaces decouple the execution core from the collaborators it consumes:
the fake-data provider catalog, the random source, the clock used for relative
dates, and the storage that keeps session state between runs.

# Key Interfaces

  - ProviderRegistry: dispatches a fake provider call by name.
  - RandomSource: the single sequential random stream of a run.
  - Clock: the "current time" used by relative date offsets.
  - SessionStore: persists just_once state and id sequences.
  - DistributedLocker: serializes access to one session across replicas.
*/
package ports
