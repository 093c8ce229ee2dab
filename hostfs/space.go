package hostfs

// Space is the Dfree information block, in clusters of one sector.
type Space struct {
	FreeClusters   uint32
	TotalClusters  uint32
	SectorSize     uint32
	ClusterSectors uint32
}

const sectorSize = 512

// clampSpace converts host block counts into sector clusters that fit
// in 32 bits.
func clampSpace(free, total, bsize uint64) Space {
	f := free * bsize / sectorSize
	t := total * bsize / sectorSize
	const max = 0x7FFFFFFF
	if f > max {
		f = max
	}
	if t > max {
		t = max
	}
	return Space{FreeClusters: uint32(f), TotalClusters: uint32(t), SectorSize: sectorSize, ClusterSectors: 1}
}
