// Package clientip resolves the originating client address of an HTTP
// request behind proxies and CDNs.
//
// Headers are only trustworthy when the service sits behind a proxy that
// overwrites them; set the list with FromHeaders when the deployment differs
// from DefaultHeaders.
package clientip
