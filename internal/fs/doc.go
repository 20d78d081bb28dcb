// Package fs abstracts the file system operations of the local blob store
// so tests can inject write, sync, close and rename failures.
//
// Production code uses fs.Default ([LocalFS]). Tests wrap it:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".meta", fs.Fault{FailAfterBytes: -1, FailOnRename: true})
package fs
