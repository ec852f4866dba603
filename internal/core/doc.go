// Package core provides the reference data upload pipeline.
//
// An upload is decoded, validated against the source schemas and reduced by
// its dataset into a [Plan]. The plan is persisted in the background as one
// full-refresh transaction while a job row reports progress. Nothing here
// depends on HTTP, so the web server and the CLI share the same [Service].
//
// # Datasets
//
// Datasets register at init time with [Register]. Each definition names its
// source schemas and turns their validated rows into a plan:
//
//	core.Register(core.DatasetDefinition{
//	    Info: core.DatasetInfo{
//	        Type:    core.DataTypeHs6p,
//	        Label:   "HS6P commodity codes",
//	        Sources: []string{"hs6p"},
//	    },
//	    Prepare: prepareHs6p,
//	})
//
// Definitions live in the tables subpackage, which must be imported for its
// side effects.
//
// # Jobs
//
// [JobTracker] owns the file_upload_job rows. A job starts pending and moves
// to completed at 100% progress. Deleting a pending row cancels the run: the
// next checkpoint of [BatchPersister] affects no row and the transaction
// rolls back.
//
// # Concurrency
//
// [TaskLimiter] bounds the number of detached persistence runs. Runs use a
// context detached from the request so a closed connection does not abort
// them; [Service.WaitForTasks] lets shutdown wait for them.
//
// # Errors
//
// [MapError] turns internal errors into coded user messages. Responses built
// with [FailedUpload] carry the message and code.
package core
