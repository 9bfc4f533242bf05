// Package api calls VK API methods and classifies their failures.
//
// Every facade method on Client runs through Do, which classifies errors
// into an ErrorKind. RateLimited and Timeout are retried with a fixed delay
// up to the Retrier's attempt cap; every other kind is returned at once.
//
//	client, err := api.NewClient(token, api.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	id, err := client.SendMessage(ctx, api.OutgoingMessage{PeerID: peer, Text: "hi"})
//	if api.KindOf(err) == api.KindInvalidToken {
//		// log in again
//	}
package api
