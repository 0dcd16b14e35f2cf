package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Rahi-padwal/linkRecall/pkg/dotdir"
)

var _ = Describe("dotdir.Manager profile", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())
		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns nil when no profile exists", func() {
		profile, err := m.LoadProfile(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(profile).To(BeNil())
	})

	It("round-trips a saved profile", func() {
		Expect(m.SaveProfile(&dotdir.Profile{UserID: "u-1"}, tmpDir)).To(Succeed())

		profile, err := m.LoadProfile(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(profile.UserID).To(Equal("u-1"))
	})

	It("rejects a nil profile", func() {
		Expect(m.SaveProfile(nil, tmpDir)).To(MatchError(ContainSubstring("nil profile")))
	})

	It("reports a corrupt profile", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "profile.json"), []byte("{"), 0o600)).To(Succeed())

		_, err := m.LoadProfile(tmpDir)
		Expect(err).To(MatchError(ContainSubstring("parsing profile")))
	})

	It("clears the profile and tolerates clearing twice", func() {
		Expect(m.SaveProfile(&dotdir.Profile{UserID: "u-1"}, tmpDir)).To(Succeed())
		Expect(m.ClearProfile(tmpDir)).To(Succeed())
		Expect(m.ClearProfile(tmpDir)).To(Succeed())

		profile, err := m.LoadProfile(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(profile).To(BeNil())
	})
})
