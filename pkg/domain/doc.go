/*
Package domain contains the core domain models of the seedbed recipe engine.

It defines the entities a recipe is made of (ObjectBlocks and their FieldSpecs),
the records an execution produces, the session state that survives between
invocations, and the typed errors of every execution phase. This package is
kept pure and free of I/O, persistence, and randomness.

# Key Entities

  - Recipe: the ordered list of ObjectBlocks plus declared Options.
  - ObjectBlock: one declaration producing one or more records of a type.
  - FieldSpec: a literal, template, or generator specification for one field.
  - GeneratedRecord: an immutable record with ordered field values.
  - RecordRef: the identifier-shaped value a reference field resolves to.
  - Session: just_once flags, carried records, and id sequences of a generation session.
  - Result: the output batch of one run, with its terminal status.
*/
package domain
