// Package pager implements the demand-paged cache that sits between the
// B+tree in package table and the single on-disk file backing it.
//
// A Pager owns the file descriptor and a fixed-size slot table of at most
// TableMaxPages resident pages, keyed by page number. There is no dirty
// tracking: every resident page is written back unconditionally on Close.
// Pages are never evicted and never freed; the only way the file extent
// grows is by handing out the next sequential page number.
package pager

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// PageSize is the fixed size, in bytes, of every page in the file.
	PageSize = 4096

	// TableMaxPages bounds the resident page cache. The source aborts
	// rather than evicting, so this is also a hard ceiling on database
	// size for this implementation.
	TableMaxPages = 100
)

// Page is one fixed-size page of raw bytes. Callers interpret Data
// according to the node layout in package table; the Pager itself never
// looks inside it.
type Page struct {
	Data [PageSize]byte
}

// Pager is the sole owner of page memory and the backing file.
type Pager struct {
	file     *os.File
	pages    [TableMaxPages]*Page
	numPages uint32
	log      *logrus.Logger
}

// Open opens path read-write, creating it if absent. The file length must
// be a whole multiple of PageSize; any other length is a corrupt file and
// is reported as a fatal error to the caller.
func Open(path string, log *logrus.Logger) (*Pager, error) {
	if log == nil {
		log = logrus.New()
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, errors.Wrapf(err, "pager: open %s", path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "pager: stat %s", path)
	}
	size := fi.Size()
	if size%PageSize != 0 {
		f.Close()
		return nil, errors.Errorf("pager: corrupt file %s: length %d is not a multiple of page size %d", path, size, PageSize)
	}
	p := &Pager{
		file:     f,
		numPages: uint32(size / PageSize),
		log:      log,
	}
	log.WithFields(logrus.Fields{"path": path, "pages": p.numPages}).Debug("pager opened")
	return p, nil
}

// NumPages reports the current file extent in pages.
func (p *Pager) NumPages() uint32 { return p.numPages }

// GetUnusedPageNum returns the page number that the next allocation will
// receive. The engine never recycles pages, so this is always the current
// high-water mark.
func (p *Pager) GetUnusedPageNum() uint32 { return p.numPages }

// GetPage returns the resident page for pageNum, loading it from disk (or
// zero-initializing it, if pageNum is exactly the next unused page) on a
// cache miss. Accessing a page number beyond TableMaxPages is fatal.
func (p *Pager) GetPage(pageNum uint32) (*Page, error) {
	if pageNum >= TableMaxPages {
		return nil, errors.Errorf("pager: page number %d out of bounds (max %d)", pageNum, TableMaxPages)
	}
	if p.pages[pageNum] != nil {
		return p.pages[pageNum], nil
	}

	page := &Page{}
	if pageNum < p.numPages {
		if err := p.readPage(pageNum, page); err != nil {
			return nil, err
		}
	} else if pageNum == p.numPages {
		p.numPages++
	} else {
		return nil, errors.Errorf("pager: page number %d skips ahead of extent %d", pageNum, p.numPages)
	}

	p.pages[pageNum] = page
	return page, nil
}

func (p *Pager) readPage(pageNum uint32, page *Page) error {
	off := int64(pageNum) * PageSize
	n, err := p.file.ReadAt(page.Data[:], off)
	if err != nil && n == 0 {
		return errors.Wrapf(err, "pager: read page %d", pageNum)
	}
	p.log.WithFields(logrus.Fields{"page": pageNum}).Debug("page loaded from disk")
	return nil
}

// Flush writes a resident page back to its offset in the file and flushes
// OS buffers. Flushing a non-resident page is a no-op.
func (p *Pager) Flush(pageNum uint32) error {
	if pageNum >= TableMaxPages {
		return errors.Errorf("pager: flush page %d out of bounds (max %d)", pageNum, TableMaxPages)
	}
	page := p.pages[pageNum]
	if page == nil {
		return nil
	}
	off := int64(pageNum) * PageSize
	if _, err := p.file.WriteAt(page.Data[:], off); err != nil {
		return errors.Wrapf(err, "pager: flush page %d", pageNum)
	}
	if err := p.file.Sync(); err != nil {
		return errors.Wrapf(err, "pager: sync after flushing page %d", pageNum)
	}
	p.log.WithFields(logrus.Fields{"page": pageNum}).Debug("page flushed")
	return nil
}

// Close flushes every resident page and closes the file. There is no
// dirty tracking, so every page that was ever touched is rewritten.
func (p *Pager) Close() error {
	for pageNum, page := range p.pages {
		if page == nil {
			continue
		}
		if err := p.Flush(uint32(pageNum)); err != nil {
			return err
		}
	}
	if err := p.file.Close(); err != nil {
		return errors.Wrap(err, "pager: close file")
	}
	return nil
}
