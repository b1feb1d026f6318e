// Package api exposes render jobs over HTTP.
//
// Clients submit a job document and receive its id immediately, poll the job
// by id, and download the finished artifact. Validation failures are answered
// with 400 before any job id is issued. When a token is configured every
// route requires "Authorization: Bearer <token>".
package api
