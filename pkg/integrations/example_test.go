package integrations_test

import (
	"fmt"

	"github.com/WrongGitUsername/gns3-snapshot/pkg/integrations"
)

func ExampleJoinURL() {
	fmt.Println(integrations.JoinURL("http://localhost:3080/", "v2", "projects", "p1"))
	fmt.Println(integrations.JoinURL("http://mirror", "my lab.gns3"))
	// Output:
	// http://localhost:3080/v2/projects/p1
	// http://mirror/my%20lab.gns3
}

func ExampleEscapePath() {
	// Symbol ids keep their slashes
	fmt.Println(integrations.EscapePath(":/symbols/router.svg"))
	// Output:
	// :/symbols/router.svg
}

func Example_errors() {
	// Standard errors for topology server operations
	fmt.Println("ErrNotFound:", integrations.ErrNotFound)
	fmt.Println("ErrNetwork:", integrations.ErrNetwork)
	// Output:
	// ErrNotFound: resource not found
	// ErrNetwork: network error
}
