package uploads_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/voiceagent/pkg/uploads"
)

var _ = Describe("Stager", func() {
	var (
		dir    string
		stager *uploads.Stager
	)

	BeforeEach(func() {
		dir = filepath.Join(GinkgoT().TempDir(), "nested", "uploads")
		var err error
		stager, err = uploads.NewStager(dir, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates the staging directory", func() {
		info, err := os.Stat(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
		Expect(stager.Dir()).To(Equal(dir))
	})

	It("writes the upload and reports its size", func() {
		f, err := stager.Save("clip.webm", []byte("audio-bytes"))
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Name).To(Equal("clip.webm"))
		Expect(f.Size).To(Equal(int64(len("audio-bytes"))))
		Expect(filepath.Dir(f.Path)).To(Equal(dir))
		Expect(filepath.Base(f.Path)).To(HaveSuffix("-clip.webm"))

		data, err := os.ReadFile(f.Path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("audio-bytes"))
	})

	It("stages empty uploads", func() {
		f, err := stager.Save("empty.wav", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Size).To(BeZero())
	})

	It("never collides on repeated names", func() {
		a, err := stager.Save("clip.webm", []byte("a"))
		Expect(err).NotTo(HaveOccurred())
		b, err := stager.Save("clip.webm", []byte("b"))
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Path).NotTo(Equal(b.Path))
	})

	DescribeTable("keeps uploads inside the staging directory",
		func(name string) {
			f, err := stager.Save(name, []byte("x"))
			Expect(err).NotTo(HaveOccurred())
			Expect(filepath.Dir(f.Path)).To(Equal(dir))
			Expect(strings.Contains(filepath.Base(f.Path), "..")).To(BeFalse())
		},
		Entry("parent traversal", "../../etc/passwd"),
		Entry("absolute path", "/tmp/evil.sh"),
		Entry("windows path", `..\..\evil.exe`),
		Entry("dot file", ".."),
		Entry("empty name", ""),
	)
})
