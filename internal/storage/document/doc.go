// Package document provides an embedded, ordered key-value database with
// structured keys, and the session backend built on it.
//
// Keys are tuples of strings compared part by part, so every record of a
// host sits in one contiguous range and prefix listing is a range scan.
// Expiry is given in milliseconds ("expire in") and enforced on read;
// a sweeper reclaims expired records in the background.
package document
