package e2e_test

import (
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gridwatch/outage-notifier/test/e2e"
)

var binary string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "outage-notifier-e2e")
	if err != nil {
		panic(err)
	}

	binary, err = e2e.BuildBinary(dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		panic(err)
	}

	code := m.Run()

	_ = os.RemoveAll(dir)

	os.Exit(code)
}

// Go Test
func TestCommon(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Common test suite")
}
