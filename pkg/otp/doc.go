// Package otp computes TOTP (RFC 6238) codes for a local authenticator.
//
// A Generator turns a decoded secret into the code of a time window. Its
// SelectSlot method applies the look-ahead policy: when the current window
// has fewer than a minimum number of seconds left, the code of the next
// window is returned instead so the user has time to type it.
//
// # Example
//
//	gen, err := otp.NewGenerator(otp.Config{
//	    Digits:    6,
//	    Period:    30,
//	    Algorithm: otp.AlgorithmSHA1,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	secret, err := otp.DecodeSecret("JBSWY3DPEHPK3PXP")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	slot, warned, err := gen.SelectSlot(secret, 5)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if warned {
//	    log.Println("using next time slot")
//	}
//	fmt.Println(slot.Code, slot.SecondsLeft)
//
// # Listings
//
// When codes for several secrets are printed together, use a Listing. It
// samples the clock once and decides the look-ahead offset for the first
// secret only, so every code in the listing belongs to the same window:
//
//	listing := gen.NewListing(5)
//	for _, secret := range secrets {
//	    slot, err := listing.Next(secret)
//	    ...
//	}
//
// # Secrets
//
// Secrets are stored as BASE32 text. DecodeSecret accepts lowercase input,
// embedded spaces and missing padding. GenerateSecret returns a new random
// 160-bit secret in the same form.
//
// # Hash Algorithms
//
// The package supports multiple hash algorithms:
//   - AlgorithmSHA1 (default, widely supported)
//   - AlgorithmSHA256
//   - AlgorithmSHA512
//
// Note that not all authenticator apps support SHA256 and SHA512.
//
// # Thread Safety
//
// Generator is safe for concurrent use. A Listing is not.
package otp
