// Package jobboard maps application intents onto the job-board REST API.
//
// Every method is a thin request builder over apiclient.Client; bearer tokens and silent
// session renewal are handled below this layer. Login, logout and profile updates also
// maintain the local session state the renewal relies on.
package jobboard
