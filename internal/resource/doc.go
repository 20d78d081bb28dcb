// Package resource bounds the memory and read bandwidth an index may use.
//
// Memory is reserved with a weighted semaphore and never blocks: callers
// such as the document block cache simply skip caching when the budget is
// exhausted. Reads wait on a token bucket sized to one second of throughput.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 64 << 20,
//	    ReadBytesPerSec:  32 << 20,
//	})
//	if err := rc.AcquireRead(ctx, blob.Size()); err != nil {
//	    return err
//	}
package resource
