// Package mocks provides shared test doubles.
//
// The store mocks keep their state in a Memory, so a set of stores built on
// one Memory behaves like one database: deleting a project removes its
// tasks, and task reads see the project owner. Their WithTx methods return
// the store itself; pair them with NewTxDB so that services still open and
// commit real (sqlmock) transactions.
//
//	mem := mocks.NewMemory()
//	owner := mem.AddUser("Ada", "Lovelace", "ada@example.com")
//	db, sqlMock := mocks.NewTxDB(t)
//	mocks.ExpectCommit(sqlMock)
//	svc, _ := service.NewProjectService(db, mocks.NewMockProjectStore(mem), ...)
//
// Fn fields on each mock override the in-memory behavior, which is how
// tests inject storage failures.
package mocks
