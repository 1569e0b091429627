// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
session is a package that persists the tokens of a signed in user as a group
of key/value entries, one entry per token kind.

Primary types provided by the package

* Keys: the fixed entry names for a client, derived from a prefix and the
client id (<prefix>.<clientId>.accessToken and so on).

* Session: reads and writes a token set through a Store (usually a
*cookie.Store).  Persist checks every entry fits in a cookie before writing
any of them, so a session is written as a group or not at all.  Clear
removes every entry.  Refresh redeems the stored refresh token and persists
the new token set.

* NewTokenValidator: a cookie.Validator which verifies the JWT valued
entries (access and id tokens) with a *jwt.Validator so forged or expired
tokens read as absent.
*/
package session
