// Package mocks provides centralized test doubles shared across packages.
//
// Two styles are used, matching what each test needs:
//
//   - In-memory fakes with real behavior and failure injection, such as
//     InMemoryMatchStore, for exercising the batch orchestrator end to end.
//   - Function-field or testify mocks, such as MockCycleService and
//     TestifyMockGroupStore, for asserting how a caller uses a dependency.
//
// Usage:
//
//	import "github.com/phrazzld/huddle-api/internal/mocks"
//
//	func TestSomething(t *testing.T) {
//	    repo := mocks.NewInMemoryMatchStore(members...)
//	    repo.CommitErr = errors.New("connection reset")
//
//	    // Run a cycle against repo and assert nothing was written...
//	}
//
// When adding a new mock to this package:
//  1. Create a new file named after the interface being mocked
//  2. Add a compile-time check that the mock satisfies the interface
//  3. Document any failure injection fields or helper methods
package mocks
