// Package grammarbot is a client for the GrammarBot grammar checking API.
//
// A Client is the primary way to interact with the API:
//
//	client, err := grammarbot.New("your_api_key")
//	if err != nil {
//		return err
//	}
//	res, err := client.Check(ctx, "I can't remember how to go their.")
//	if err != nil {
//		return err
//	}
//	fmt.Println(res.Matches[0].Rule.ID) // CONFUSION_RULE
//
// The Response mirrors the JSON document returned by the API. Offsets and lengths in a
// Match count UTF-16 code units; Position and Response.Correct take care of the
// conversion.
//
// Requests can be retried on transient failures (WithRetryPolicy), throttled
// (WithRateLimit) and observed (WithRecorder, WithLogger).
package grammarbot
