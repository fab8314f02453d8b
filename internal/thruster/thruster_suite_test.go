package thruster

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestThrusterScenarios(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Thruster Scenarios")
}
