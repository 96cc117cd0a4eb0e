// Package resilient runs outbound API operations and decides, per failure,
// whether to retry, wait, or hand the failure back to the caller.
//
// # Classification
//
// Failures are classified by the HTTP status they carry. Any error in the
// chain that implements StatusCoder supplies the status; errors that also
// implement RetryAfterer supply the server's suggested wait.
//
//	401          fatal-auth          surfaced immediately
//	429          retry-after-delay   wait Retry-After, then retry
//	other 4xx    fatal-client        surfaced immediately with a label
//	>= 500       retry-with-backoff  wait base * 2^n, then retry
//	anything     fatal-unknown       surfaced immediately
//
// The mapping is a Policy and can be replaced per call.
//
// # Calling
//
//	res := resilient.Call(ctx, cfg, "tracks.get", func(ctx context.Context) (*spotify.Track, error) {
//	    return client.Tracks().Get(ctx, id, "")
//	})
//	switch res.Outcome {
//	case resilient.OutcomeSuccess:
//	    fmt.Println(res.Value.Name)
//	case resilient.OutcomeAuthFailure:
//	    // re-authenticate
//	case resilient.OutcomeClientFailure:
//	    fmt.Println(res.Failure.Label)
//	default:
//	    log.Print(res.Err())
//	}
//
// Do is the (T, error) form of Call for code that only needs to propagate.
//
// # Bounds
//
// Retries are bounded by Config.MaxRetries and by the total time spent
// waiting, Config.MaxWait. A Retry-After larger than the remaining wait
// budget ends the call instead of being shortened.
package resilient
