package farming

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/solfarm/farming-go/farming/fixedpoint"
)

// Reader is a cursor over a fixed-size account's raw bytes. Read*
// methods report an error when the buffer is short, so a truncated or
// corrupt record is never silently zero-filled.
type Reader struct {
	data   []byte
	offset int
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the current read position.
func (r *Reader) Offset() int { return r.offset }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.offset }

func (r *Reader) ReadU8() (uint8, error) {
	if r.offset+1 > len(r.data) {
		return 0, fmt.Errorf("farming: not enough data for u8 at offset %d", r.offset)
	}
	v := r.data[r.offset]
	r.offset++
	return v, nil
}

func (r *Reader) ReadU64() (uint64, error) {
	if r.offset+8 > len(r.data) {
		return 0, fmt.Errorf("farming: not enough data for u64 at offset %d", r.offset)
	}
	v := binary.LittleEndian.Uint64(r.data[r.offset:])
	r.offset += 8
	return v, nil
}

func (r *Reader) ReadPubkey() (solana.PublicKey, error) {
	if r.offset+32 > len(r.data) {
		return solana.PublicKey{}, fmt.Errorf("farming: not enough data for pubkey at offset %d", r.offset)
	}
	var pk solana.PublicKey
	copy(pk[:], r.data[r.offset:r.offset+32])
	r.offset += 32
	return pk, nil
}

// ReadAmount reads a u64 and lifts it into a fixedpoint.Amount.
func (r *Reader) ReadAmount() (fixedpoint.Amount, error) {
	v, err := r.ReadU64()
	if err != nil {
		return fixedpoint.Amount{}, err
	}
	return fixedpoint.FromUint64(v), nil
}

// Writer accumulates a fixed-size account's raw bytes.
type Writer struct {
	buf []byte
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) WriteU8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WritePubkey(pk solana.PublicKey) {
	w.buf = append(w.buf, pk[:]...)
}

// WriteAmount writes a fixedpoint.Amount as its u64 wire form,
// returning ErrArithmeticOverflow if it doesn't fit.
func (w *Writer) WriteAmount(a fixedpoint.Amount) error {
	v, err := a.Uint64()
	if err != nil {
		return err
	}
	w.WriteU64(v)
	return nil
}

func (r *Reader) readHarvestPeriod() (HarvestPeriod, error) {
	var p HarvestPeriod
	var err error
	if p.StartsAt, err = r.ReadU64(); err != nil {
		return p, err
	}
	if p.EndsAt, err = r.ReadU64(); err != nil {
		return p, err
	}
	if p.TPS, err = r.ReadAmount(); err != nil {
		return p, err
	}
	return p, nil
}

func (w *Writer) writeHarvestPeriod(p HarvestPeriod) error {
	w.WriteU64(p.StartsAt)
	w.WriteU64(p.EndsAt)
	return w.WriteAmount(p.TPS)
}

func (r *Reader) readHarvest() (Harvest, error) {
	var h Harvest
	var err error
	if h.Mint, err = r.ReadPubkey(); err != nil {
		return h, err
	}
	if h.Vault, err = r.ReadPubkey(); err != nil {
		return h, err
	}
	for i := range h.Periods {
		if h.Periods[i], err = r.readHarvestPeriod(); err != nil {
			return h, err
		}
	}
	return h, nil
}

func (w *Writer) writeHarvest(h Harvest) error {
	w.WritePubkey(h.Mint)
	w.WritePubkey(h.Vault)
	for _, p := range h.Periods {
		if err := w.writeHarvestPeriod(p); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) readSnapshotBuffer() (SnapshotBuffer, error) {
	var buf SnapshotBuffer
	var err error
	if buf.Tip, err = r.ReadU64(); err != nil {
		return buf, err
	}
	for i := range buf.Entries {
		if buf.Entries[i].StartedAt, err = r.ReadU64(); err != nil {
			return buf, err
		}
		if buf.Entries[i].Staked, err = r.ReadAmount(); err != nil {
			return buf, err
		}
	}
	return buf, nil
}

func (w *Writer) writeSnapshotBuffer(buf SnapshotBuffer) error {
	w.WriteU64(buf.Tip)
	for _, s := range buf.Entries {
		w.WriteU64(s.StartedAt)
		if err := w.WriteAmount(s.Staked); err != nil {
			return err
		}
	}
	return nil
}

// EncodeFarm serializes f into its fixed-size wire representation.
func EncodeFarm(f *Farm) ([]byte, error) {
	w := NewWriter()
	w.WritePubkey(f.Admin)
	w.WritePubkey(f.StakeMint)
	w.WritePubkey(f.StakeVault)
	w.WriteU64(f.MinSnapshotWindowSlots)
	for _, h := range f.Harvests {
		if err := w.writeHarvest(h); err != nil {
			return nil, err
		}
	}
	if err := w.writeSnapshotBuffer(f.Snapshots); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeFarm deserializes a Farm from its fixed-size wire
// representation.
func DecodeFarm(data []byte) (*Farm, error) {
	r := NewReader(data)
	var f Farm
	var err error
	if f.Admin, err = r.ReadPubkey(); err != nil {
		return nil, err
	}
	if f.StakeMint, err = r.ReadPubkey(); err != nil {
		return nil, err
	}
	if f.StakeVault, err = r.ReadPubkey(); err != nil {
		return nil, err
	}
	if f.MinSnapshotWindowSlots, err = r.ReadU64(); err != nil {
		return nil, err
	}
	for i := range f.Harvests {
		if f.Harvests[i], err = r.readHarvest(); err != nil {
			return nil, err
		}
	}
	if f.Snapshots, err = r.readSnapshotBuffer(); err != nil {
		return nil, err
	}
	return &f, nil
}

// EncodeFarmer serializes fr into its fixed-size wire representation.
func EncodeFarmer(fr *Farmer) ([]byte, error) {
	w := NewWriter()
	w.WritePubkey(fr.Authority)
	w.WritePubkey(fr.Farm)
	if err := w.WriteAmount(fr.Staked); err != nil {
		return nil, err
	}
	if err := w.WriteAmount(fr.Vested); err != nil {
		return nil, err
	}
	w.WriteU64(fr.VestedAt)
	w.WriteU64(fr.CalculateNextHarvestFrom)
	for _, h := range fr.Harvests {
		w.WritePubkey(h.Mint)
		if err := w.WriteAmount(h.Accrued); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

// DecodeFarmer deserializes a Farmer from its fixed-size wire
// representation.
func DecodeFarmer(data []byte) (*Farmer, error) {
	r := NewReader(data)
	var fr Farmer
	var err error
	if fr.Authority, err = r.ReadPubkey(); err != nil {
		return nil, err
	}
	if fr.Farm, err = r.ReadPubkey(); err != nil {
		return nil, err
	}
	if fr.Staked, err = r.ReadAmount(); err != nil {
		return nil, err
	}
	if fr.Vested, err = r.ReadAmount(); err != nil {
		return nil, err
	}
	if fr.VestedAt, err = r.ReadU64(); err != nil {
		return nil, err
	}
	if fr.CalculateNextHarvestFrom, err = r.ReadU64(); err != nil {
		return nil, err
	}
	for i := range fr.Harvests {
		if fr.Harvests[i].Mint, err = r.ReadPubkey(); err != nil {
			return nil, err
		}
		if fr.Harvests[i].Accrued, err = r.ReadAmount(); err != nil {
			return nil, err
		}
	}
	return &fr, nil
}
