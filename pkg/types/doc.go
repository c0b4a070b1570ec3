// Package types defines the persist record schema, the Object and Sink
// contracts the persistence core works against, the record store interface,
// and the standard error types shared by every spsync package.
//
// The wire contract is two record shapes. An ObjectRecord announces that an
// object exists and where it sits among its siblings; a PropertyRecord
// assigns one wire-basic value to one property of one object.
package types
