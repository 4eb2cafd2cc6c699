// Package domain contains the core business entities of the task manager:
// users, projects, tasks, personal notes and attachments, together with the
// access rules that decide who may read or change them. It has no knowledge
// of storage or transport.
package domain
