package perftest

import (
	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

// Layout is the physical arrangement of a block handed to a module.
type Layout int

const (
	// ObjectsFirst lays out each document's features contiguously: block[doc][feature]
	ObjectsFirst Layout = iota
	// FeaturesFirst lays out each feature's values contiguously: block[feature][doc]
	FeaturesFirst
)

// Layouts lists every layout in evaluation order.
var Layouts = []Layout{ObjectsFirst, FeaturesFirst}

func (l Layout) String() string {
	switch l {
	case ObjectsFirst:
		return "objects_first"
	case FeaturesFirst:
		return "features_first"
	default:
		return "unknown"
	}
}

// Dataset is the read-only view of the pool the layout builder needs.
type Dataset interface {
	ObjectCount() int
	FeatureCount() int
	// ConsecutiveSubsetBegin reports whether all documents occupy one
	// consecutive run of storage, and where it starts.
	ConsecutiveSubsetBegin() (int, bool)
	// FeatureData returns every document's value of one feature as a view
	// into the pool storage.
	FeatureData(flatFeatureIdx int) []float32
}

// WholePool as a block size puts every document in one block.
const WholePool = -1

// FeatureAccessor returns the values of one feature across the whole pool.
type FeatureAccessor func(flatFeatureIdx int) []float32

// BlockOptions controls partitioning.
type BlockOptions struct {
	// BlockSize is the number of documents per block. WholePool or anything
	// larger than the pool means one block with the whole pool; zero is rejected.
	BlockSize int
	// IncludePartialBlock keeps the trailing ObjectCount%BlockSize documents
	// as one shorter block instead of dropping them.
	IncludePartialBlock bool
}

// Blocks holds every block of the pool in both layouts. Both views of a block
// agree element for element: ObjectsFirst[b][d][f] == FeaturesFirst[b][f][d].
type Blocks struct {
	BlockSize    int
	ObjectCount  int
	FeatureCount int

	// ObjectsFirst owns its values, copied out of the pool
	ObjectsFirst [][][]float32
	// FeaturesFirst views the pool storage and is valid while the pool is
	FeaturesFirst [][][]float32
}

// Count returns the number of blocks.
func (b *Blocks) Count() int {
	return len(b.ObjectsFirst)
}

// DocCount returns the number of documents in a block.
func (b *Blocks) DocCount(blockID int) int {
	return len(b.ObjectsFirst[blockID])
}

// Data returns one block in the requested layout.
func (b *Blocks) Data(layout Layout, blockID int) [][]float32 {
	if layout == FeaturesFirst {
		return b.FeaturesFirst[blockID]
	}
	return b.ObjectsFirst[blockID]
}

// BuildBlocks partitions a dataset. The dataset must keep its documents in one
// consecutive run of storage; otherwise the features-first layout cannot be
// provided and the run is meaningless.
func BuildBlocks(ds Dataset, opts BlockOptions) (*Blocks, error) {
	if _, ok := ds.ConsecutiveSubsetBegin(); !ok {
		return nil, perferrors.New(perferrors.ErrorTypeLayout, "pool documents are not stored consecutively").
			WithDetail("objects", ds.ObjectCount())
	}
	return BuildBlocksFromAccessor(ds.ObjectCount(), ds.FeatureCount(), ds.FeatureData, opts)
}

// BuildBlocksFromAccessor partitions objectCount documents whose feature
// values are reachable through access.
func BuildBlocksFromAccessor(objectCount, featureCount int, access FeatureAccessor, opts BlockOptions) (*Blocks, error) {
	if opts.BlockSize == 0 || opts.BlockSize < WholePool {
		return nil, perferrors.New(perferrors.ErrorTypeConfig, "block size must be positive").
			WithDetail("block_size", opts.BlockSize)
	}
	if featureCount <= 0 {
		return nil, perferrors.New(perferrors.ErrorTypeConfig, "pool has no features").
			WithDetail("objects", objectCount)
	}

	blockSize := opts.BlockSize
	if blockSize == WholePool || blockSize > objectCount {
		blockSize = objectCount
	}
	if blockSize <= 0 {
		return nil, perferrors.New(perferrors.ErrorTypeConfig, "empty pool")
	}

	blockCount := objectCount / blockSize
	tail := objectCount % blockSize
	if opts.IncludePartialBlock && tail > 0 {
		blockCount++
	}

	featureData := make([][]float32, featureCount)
	for f := 0; f < featureCount; f++ {
		featureData[f] = access(f)
		if len(featureData[f]) < objectCount {
			return nil, perferrors.New(perferrors.ErrorTypeLayout, "feature data is shorter than the pool").
				WithDetail("feature", f).
				WithDetail("values", len(featureData[f])).
				WithDetail("objects", objectCount)
		}
	}

	blocks := &Blocks{
		BlockSize:     blockSize,
		ObjectCount:   objectCount,
		FeatureCount:  featureCount,
		ObjectsFirst:  make([][][]float32, blockCount),
		FeaturesFirst: make([][][]float32, blockCount),
	}

	for blockID := 0; blockID < blockCount; blockID++ {
		blockStart := blockSize * blockID
		docs := blockSize
		if blockStart+docs > objectCount {
			docs = objectCount - blockStart
		}

		transposed := make([][]float32, featureCount)
		for f := 0; f < featureCount; f++ {
			transposed[f] = featureData[f][blockStart : blockStart+docs : blockStart+docs]
		}
		blocks.FeaturesFirst[blockID] = transposed

		backing := make([]float32, docs*featureCount)
		rows := make([][]float32, docs)
		for d := 0; d < docs; d++ {
			row := backing[d*featureCount : (d+1)*featureCount : (d+1)*featureCount]
			for f := 0; f < featureCount; f++ {
				row[f] = featureData[f][blockStart+d]
			}
			rows[d] = row
		}
		blocks.ObjectsFirst[blockID] = rows
	}

	return blocks, nil
}
