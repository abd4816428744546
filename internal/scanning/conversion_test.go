package scanning

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("image conversion", func() {
	Describe("isHEICFormat", func() {
		It("should detect HEIC brands", func() {
			data := append([]byte{0, 0, 0, 24}, []byte("ftypheic0000")...)
			Expect(isHEICFormat(data)).To(BeTrue())
		})

		It("should reject other containers", func() {
			data := append([]byte{0, 0, 0, 24}, []byte("ftypisom0000")...)
			Expect(isHEICFormat(data)).To(BeFalse())
			Expect(isHEICFormat([]byte("short"))).To(BeFalse())
		})
	})

	Describe("normalizeMIMEType", func() {
		It("should default to JPEG", func() {
			Expect(normalizeMIMEType("  ")).To(Equal("image/jpeg"))
		})

		It("should lowercase and drop parameters", func() {
			Expect(normalizeMIMEType("Image/PNG; charset=binary")).To(Equal("image/png"))
		})
	})

	Describe("prepareImageData", func() {
		var jpegData []byte

		BeforeEach(func() {
			img := image.NewRGBA(image.Rect(0, 0, 4, 4))
			img.Set(1, 1, color.RGBA{R: 255, A: 255})
			var buf bytes.Buffer
			Expect(jpeg.Encode(&buf, img, nil)).To(Succeed())
			jpegData = buf.Bytes()
		})

		It("should convert JPEG to PNG", func() {
			data, mimeType, converted, err := prepareImageData(jpegData, "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			Expect(converted).To(BeTrue())
			Expect(mimeType).To(Equal("image/png"))

			_, err = png.Decode(bytes.NewReader(data))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should pass PNG through untouched", func() {
			data, _, converted, err := prepareImageData([]byte("png"), "image/png")
			Expect(err).NotTo(HaveOccurred())
			Expect(converted).To(BeFalse())
			Expect(data).To(Equal([]byte("png")))
		})

		It("should reject unknown formats", func() {
			_, _, _, err := prepareImageData([]byte("not an image"), "image/webp")
			Expect(err).To(MatchError(ErrUnsupportedImage))
		})
	})
})
