package ccat

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/catid/ccat-go/internal/protocol"
)

func TestSession(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Session Suite")
}

// This is an integration test: it drives a Session through encoding,
// simulated packet loss, and decoding end to end, the same shape as
// the teacher's own "Send FEC Stream" integration test.
var _ = Describe("Session", func() {
	var (
		sess      *Session
		recovered map[uint64][]byte
	)

	BeforeEach(func() {
		recovered = map[uint64][]byte{}
		var err error
		var result protocol.Result
		sess, result, err = Create(Settings{
			WindowMsec:    0,
			WindowPackets: 32,
			OnRecoveredData: func(seq uint64, data []byte, _ any) {
				recovered[seq] = append([]byte(nil), data...)
			},
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(result).To(Equal(protocol.Success))
	})

	It("accepts every original without firing OnRecoveredData when nothing is lost", func() {
		for i := 0; i < 20; i++ {
			_, seq, err := sess.EncodeOriginal([]byte{byte(i)}, int64(i))
			Expect(err).ToNot(HaveOccurred())
			_, err = sess.DecodeOriginal(seq, []byte{byte(i)})
			Expect(err).ToNot(HaveOccurred())
		}
		Expect(recovered).To(BeEmpty())
	})

	It("reconstructs a single loss from the XOR parity recovery", func() {
		seqs := make([]uint64, 0, 4)
		payloads := make([][]byte, 0, 4)
		for i := 0; i < 4; i++ {
			payload := []byte{byte('A' + i)}
			_, seq, err := sess.EncodeOriginal(payload, int64(i))
			Expect(err).ToNot(HaveOccurred())
			seqs = append(seqs, seq)
			payloads = append(payloads, payload)
		}

		_, data, seqStart, count, row, err := sess.EncodeRecovery()
		Expect(err).ToNot(HaveOccurred())
		Expect(row).To(Equal(uint8(1)))

		const lostIndex = 2
		for i, seq := range seqs {
			if i == lostIndex {
				continue
			}
			_, err := sess.DecodeOriginal(seq, payloads[i])
			Expect(err).ToNot(HaveOccurred())
		}

		_, err = sess.DecodeRecovery(seqStart, count, row, data)
		Expect(err).ToNot(HaveOccurred())

		Expect(recovered).To(HaveKeyWithValue(seqs[lostIndex], payloads[lostIndex]))
	})

	It("panics if OnRecoveredData re-enters the session", func() {
		var reentrant *Session
		reentrant, _, err := Create(Settings{
			WindowPackets: 8,
			OnRecoveredData: func(seq uint64, data []byte, _ any) {
				_, _, _ = reentrant.EncodeOriginal([]byte("nope"), 0)
			},
		})
		Expect(err).ToNot(HaveOccurred())

		_, seqA, err := reentrant.EncodeOriginal([]byte("A"), 0)
		Expect(err).ToNot(HaveOccurred())
		_, _, err = reentrant.EncodeOriginal([]byte("B"), 0)
		Expect(err).ToNot(HaveOccurred())

		_, data, seqStart, count, row, err := reentrant.EncodeRecovery()
		Expect(err).ToNot(HaveOccurred())
		Expect(data).ToNot(BeNil())

		// B is delivered, A is lost; the recovery above lets the fast
		// path reconstruct A, which fires OnRecoveredData and attempts
		// a reentrant EncodeOriginal from inside it.
		_, err = reentrant.DecodeOriginal(seqA+1, []byte("B"))
		Expect(err).ToNot(HaveOccurred())

		Expect(func() {
			_, _ = reentrant.DecodeRecovery(seqStart, count, row, data)
		}).To(Panic())
	})
})
