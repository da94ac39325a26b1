package helml_test

import (
	"fmt"

	"github.com/helml-lang/go-helml"
)

func ExampleUnmarshal() {
	doc := `
name: Alice
age:  30
active:  T
`
	var result map[string]any
	if err := helml.Unmarshal([]byte(doc), &result); err != nil {
		panic(err)
	}

	fmt.Println(result["name"])
	fmt.Println(result["age"])
	fmt.Println(result["active"])
	// Output:
	// Alice
	// 30
	// true
}

func ExampleMarshal() {
	data := map[string]any{
		"name":   "Alice",
		"age":    30,
		"active": true,
	}

	res, err := helml.Marshal(data)
	if err != nil {
		panic(err)
	}

	fmt.Print(string(res))
	// Output:
	// active:  T
	// age:  30
	// name: Alice
}

func ExampleMarshal_structTags() {
	// Struct tags allow you to customize field names and behavior
	type Person struct {
		Name        string   `helml:"name"`
		Age         int      `helml:"age,omitempty"` // Omitted if zero
		Email       string   `helml:"email,omitempty"`
		SecretToken string   `helml:"-"` // Always skipped
		Tags        []string `helml:"tags,omitempty"`
	}

	person := Person{
		Name:        "Alice",
		Age:         0,        // Will be omitted
		Email:       "",       // Will be omitted
		SecretToken: "secret", // Will be skipped
		Tags:        []string{"developer", "golang"},
	}

	res, err := helml.Marshal(person)
	if err != nil {
		panic(err)
	}

	fmt.Print(string(res))
	// Output:
	// name: Alice
	//
	// tags
	//  :--: developer
	//  :--: golang
	// #
}

func ExampleUnmarshal_structTags() {
	// Struct tags work for unmarshalling too - they map HELML keys to struct fields
	type User struct {
		FirstName string `helml:"first_name"`
		LastName  string `helml:"last_name"`
		Age       int    `helml:"age"`
	}

	doc := `
first_name: Alice
last_name: Smith
age:  30
`

	var user User
	if err := helml.Unmarshal([]byte(doc), &user); err != nil {
		panic(err)
	}

	fmt.Printf("Name: %s %s, Age: %d\n", user.FirstName, user.LastName, user.Age)
	// Output:
	// Name: Alice Smith, Age: 30
}

func ExampleCodec_Encode() {
	root := helml.NewMap()
	root.Set("host", helml.String("localhost"))
	root.Set("port", helml.Int(8080))

	for _, m := range []helml.Mode{helml.MultiLine, helml.URL, helml.OneLine} {
		out, err := helml.New(helml.Config{}).Encode(root, m)
		if err != nil {
			panic(err)
		}
		fmt.Printf("%s: %q\n", m, out)
	}
	// Output:
	// multi: "host: localhost\nport:  8080"
	// url: "~host.=localhost~port.==8080~"
	// one: "~host: localhost~port:  8080~~#: ~"
}

func ExampleDecode_layers() {
	doc := `
timeout:  30
-+: prod
timeout:  5
`
	root, err := helml.Decode(doc, "0", "prod")
	if err != nil {
		panic(err)
	}

	timeout, _ := root.Get("timeout")
	layers, _ := root.Get(helml.LayersKey)
	fmt.Println(timeout, layers)
	// Output:
	// 5 [0, "prod"]
}
