// Package completion wraps a single "ask the model" operation with input
// validation and bounded exponential-backoff retry.
//
// A [Caller] owns an injected upstream [Generator] and a deployment-wide
// [Policy]. [Caller.Complete] validates the prompt, then issues one upstream
// call per attempt. A failed attempt (transport error, upstream error status,
// or a response with no extractable text) is retried after the current delay,
// which doubles after every retry. Once the retry budget is spent the last
// failure is returned wrapped in an [ExhaustedError].
//
// Retry state lives in local variables of each call, so a Caller may be shared
// freely between goroutines.
package completion
