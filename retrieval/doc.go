// Package retrieval is the entry point for reading comment threads.
//
// A Facade answers two questions: "what is page N of the threads under this
// entity" and "which comments match this text". Both go through a bounded
// result cache first. On a miss the request is planned, fetched from the
// durable store, assembled into reply trees, annotated for the viewer and
// admitted into the cache before it is returned.
//
// Store failures on the miss path surface as ErrRetrievalFailed (or
// search.ErrSearchFailed) wrapping the cause. Cache failures never surface;
// the freshly built result is returned uncached.
package retrieval
