// Package domain defines the types shared by the lazy-mint submission service.
//
// A submission takes an image and its metadata through a fixed sequence:
//   - the image is stored in a content-addressed store
//   - NFT metadata referencing the image is built, encoded and stored
//   - a lazy-mint request referencing the metadata is registered with a marketplace
//
// Progress is tracked per session by a Status cell whose SubmissionStatus only
// moves idle -> pending -> success | error within a single attempt.
package domain
