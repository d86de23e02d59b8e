package cmd

import (
	"encoding/json"
	"fmt"
	"log"
)

// FatalOnError is an helper function to transform error to fatal
func FatalOnError(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

// Dump prints almost any structure as indented json
func Dump(cls interface{}) {
	data, err := json.MarshalIndent(cls, "", "    ")
	if err != nil {
		log.Println("[ERROR] could not dump structure:", err)
		return
	}
	fmt.Println(string(data))
}

// UsageHint renders the post-start hint pointing at the public API.
func UsageHint(apiPort int) string {
	return fmt.Sprintf("You can try the API with:\n\tcurl \"http://localhost:%d/translate?q=hello+world&source=en&target=it\"", apiPort)
}
