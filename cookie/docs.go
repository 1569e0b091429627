// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
cookie is a package that exposes HTTP cookies as a small key/value store.

Primary types provided by the package

* Adapter: the primitive get/set/delete-by-name cookie operations a host
framework provides.

* RequestAdapter: an Adapter bound to a single *http.Request.  It reads the
request's cookies and records every write as a Set-Cookie header value for
the response.

* Store: a key/value store built on an Adapter.  Every SetItem replaces any
prior cookie for the key (delete, then set) using a fixed attribute policy
(SameSite=Lax, Secure, Path=/) and a one year expiry.  An optional Validator
gates GetItem.  Clear is not supported: cookies cannot be enumerated for
mass deletion.
*/
package cookie
