// Package api exposes the auth, image and tag services over HTTP. Handlers
// stay thin: parse the request, call the service, translate its error into a
// status code. The identity token travels in the auth-token header.
package api
