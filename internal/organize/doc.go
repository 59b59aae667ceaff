// Package organize plans and executes the relocation of a directory's files
// into classification subdirectories.
//
// Classify maps a file to its destination subdirectory (extension or YYYY/MM
// modification date). The Planner enumerates the immediate files of a source
// directory and resolves destination collisions deterministically before
// anything moves. The Executor applies a plan best-effort, appending every
// completed move to the undo log so a later invocation can reverse the run.
//
// Per-file problems never abort a pass; they are reported in the plan or
// result so the CLI can surface them and exit non-zero.
package organize
