// Command simulate drives a ccat session over an in-process lossy
// channel, printing each recovered original and a final count of
// dropped, delivered and recovered originals. It exists
// to exercise the codec end to end without a real network stack.
package main

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/catid/ccat-go"
)

func main() {
	const (
		numOriginals  = 64
		lossRate      = 0.1
		recoveryEvery = 8
	)

	recovered := map[uint64][]byte{}
	sess, result, err := ccat.Create(ccat.Settings{
		WindowMsec:    1000,
		WindowPackets: 32,
		OnRecoveredData: func(seq uint64, data []byte, _ any) {
			recovered[seq] = append([]byte(nil), data...)
			fmt.Printf("recovered seq=%d payload=%q\n", seq, data)
		},
	})
	if err != nil || result != 0 {
		log.Fatalf("create: %v (result=%v)", err, result)
	}

	dropped := map[uint64][]byte{}
	delivered := map[uint64][]byte{}

	for i := 0; i < numOriginals; i++ {
		payload := []byte(fmt.Sprintf("packet-%d", i))

		if _, _, err := sess.EncodeOriginal(payload, int64(i)*1000); err != nil {
			log.Fatalf("encode original %d: %v", i, err)
		}
		seq := uint64(i)

		if rand.Float64() < lossRate {
			dropped[seq] = payload
		} else {
			if _, err := sess.DecodeOriginal(seq, payload); err != nil {
				log.Fatalf("decode original %d: %v", i, err)
			}
			delivered[seq] = payload
		}

		if (i+1)%recoveryEvery == 0 {
			_, data, seqStart, count, row, err := sess.EncodeRecovery()
			if err != nil {
				log.Fatalf("encode recovery: %v", err)
			}
			if data == nil {
				continue
			}
			if _, err := sess.DecodeRecovery(seqStart, count, row, data); err != nil {
				log.Fatalf("decode recovery: %v", err)
			}
		}
	}

	fmt.Printf("dropped=%d delivered=%d recovered=%d\n", len(dropped), len(delivered), len(recovered))
}
