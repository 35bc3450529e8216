package stats

import (
	"context"
	"testing"

	"github.com/odvcencio/repostat/pkg/object"
)

func runFake(t *testing.T, adapter *fakeAdapter, listRefs ReferenceLister, opts ...Option) *Report {
	t.Helper()
	a := NewAnalyzer(adapter, listRefs, opts...)
	report, err := a.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.State() != StateDone {
		t.Fatalf("State() = %v, want %v", a.State(), StateDone)
	}
	return report
}

// Scenario 1: empty repo. Every numeric field is zero.
func TestAnalyze_EmptyRepo(t *testing.T) {
	report := runFake(t, newFakeAdapter(), noRefs)

	if report.RepositorySize.Commits.Count != 0 ||
		report.RepositorySize.Trees.Count != 0 ||
		report.RepositorySize.Blobs.Count != 0 ||
		report.RepositorySize.AnnotatedTags.Count != 0 ||
		report.RepositorySize.References.Count != 0 {
		t.Fatalf("repositorySize not all zero: %+v", report.RepositorySize)
	}
	if report.HistoryStructure != (HistoryStructure{}) {
		t.Fatalf("historyStructure not zero: %+v", report.HistoryStructure)
	}
	if report.BiggestCheckouts != (BiggestCheckouts{}) {
		t.Fatalf("biggestCheckouts not zero: %+v", report.BiggestCheckouts)
	}
}

// Scenario 2: single commit whose root is the canonical empty tree.
func TestAnalyze_SingleCommitEmptyTree(t *testing.T) {
	adapter := newFakeAdapter()

	emptyTree := adapter.put("empty-tree", &ObjectView{
		Variant: VariantTree,
		Tree:    &TreeView{Size: 0, Entries: nil},
	})
	c0 := adapter.put("c0", &ObjectView{
		Variant: VariantCommit,
		Commit:  &CommitView{Size: 55, Parents: nil, RootTree: emptyTree},
	})
	_ = c0

	report := runFake(t, adapter, refs("refs/heads/main"))

	if report.RepositorySize.Commits != (CommitsSize{Count: 1, Size: 55}) {
		t.Errorf("commits = %+v, want {1 55}", report.RepositorySize.Commits)
	}
	if report.RepositorySize.Trees != (TreesSize{}) {
		t.Errorf("trees = %+v, want zero (empty tree excluded)", report.RepositorySize.Trees)
	}
	if report.RepositorySize.Blobs != (BlobsSize{}) {
		t.Errorf("blobs = %+v, want zero", report.RepositorySize.Blobs)
	}
	if report.RepositorySize.AnnotatedTags.Count != 0 {
		t.Errorf("annotatedTags.count = %d, want 0", report.RepositorySize.AnnotatedTags.Count)
	}
	if report.RepositorySize.References.Count != 1 {
		t.Errorf("references.count = %d, want 1", report.RepositorySize.References.Count)
	}
	if report.BiggestObjects.Commits != (BiggestCommits{MaxSize: 55, MaxParents: 0}) {
		t.Errorf("biggestObjects.commits = %+v, want {55 0}", report.BiggestObjects.Commits)
	}
	if report.HistoryStructure != (HistoryStructure{MaxDepth: 1, MaxTagDepth: 0}) {
		t.Errorf("historyStructure = %+v, want {1 0}", report.HistoryStructure)
	}
	if report.BiggestCheckouts != (BiggestCheckouts{}) {
		t.Errorf("biggestCheckouts = %+v, want zero", report.BiggestCheckouts)
	}
}

// Scenario 3: linear history of 5 commits, each root tree containing one
// distinct 10-byte blob named "f".
func TestAnalyze_LinearHistoryFiveCommits(t *testing.T) {
	adapter := newFakeAdapter()

	var parent object.OID
	hasParent := false
	for i := 0; i < 5; i++ {
		label := string(rune('a' + i))
		blob := adapter.put("blob-"+label, &ObjectView{
			Variant: VariantBlob,
			Blob:    &BlobView{Size: 10},
		})
		tree := adapter.put("tree-"+label, &ObjectView{
			Variant: VariantTree,
			Tree: &TreeView{
				Size:    30,
				Entries: []TreeEntryView{{Name: "f", Mode: object.TreeModeFile, TargetType: object.TargetBlob, TargetOID: blob}},
			},
		})
		var parents []object.OID
		if hasParent {
			parents = []object.OID{parent}
		}
		parent = adapter.put("commit-"+label, &ObjectView{
			Variant: VariantCommit,
			Commit:  &CommitView{Size: 60, Parents: parents, RootTree: tree},
		})
		hasParent = true
	}

	report := runFake(t, adapter, refs("refs/heads/main"))

	if report.RepositorySize.Commits.Count != 5 {
		t.Errorf("commits.count = %d, want 5", report.RepositorySize.Commits.Count)
	}
	if report.RepositorySize.Trees.Count != 5 {
		t.Errorf("trees.count = %d, want 5", report.RepositorySize.Trees.Count)
	}
	if report.RepositorySize.Blobs.Count != 5 {
		t.Errorf("blobs.count = %d, want 5", report.RepositorySize.Blobs.Count)
	}
	if report.HistoryStructure.MaxDepth != 5 {
		t.Errorf("maxDepth = %d, want 5", report.HistoryStructure.MaxDepth)
	}
	want := BiggestCheckouts{
		NumDirectories: 1,
		MaxPathDepth:   1,
		MaxPathLength:  1,
		NumFiles:       1,
		TotalFileSize:  10,
	}
	if report.BiggestCheckouts != want {
		t.Errorf("biggestCheckouts = %+v, want %+v", report.BiggestCheckouts, want)
	}
}

// Scenario 4: diamond history R, A(parent R), B(parent R), M(parents A, B).
func TestAnalyze_DiamondHistory(t *testing.T) {
	adapter := newFakeAdapter()
	emptyTree := adapter.put("empty-tree", &ObjectView{Variant: VariantTree, Tree: &TreeView{}})

	r := adapter.put("R", &ObjectView{Variant: VariantCommit, Commit: &CommitView{RootTree: emptyTree}})
	a := adapter.put("A", &ObjectView{Variant: VariantCommit, Commit: &CommitView{RootTree: emptyTree, Parents: []object.OID{r}}})
	b := adapter.put("B", &ObjectView{Variant: VariantCommit, Commit: &CommitView{RootTree: emptyTree, Parents: []object.OID{r}}})
	adapter.put("M", &ObjectView{Variant: VariantCommit, Commit: &CommitView{RootTree: emptyTree, Parents: []object.OID{a, b}}})

	report := runFake(t, adapter, noRefs)

	if report.HistoryStructure.MaxDepth != 3 {
		t.Errorf("maxDepth = %d, want 3", report.HistoryStructure.MaxDepth)
	}
	if report.BiggestObjects.Commits.MaxParents != 2 {
		t.Errorf("maxParents = %d, want 2", report.BiggestObjects.Commits.MaxParents)
	}
}

// Scenario 5: tag chain t3 -> t2 -> t1 -> C0.
func TestAnalyze_TagChain(t *testing.T) {
	adapter := newFakeAdapter()
	emptyTree := adapter.put("empty-tree", &ObjectView{Variant: VariantTree, Tree: &TreeView{}})
	c0 := adapter.put("c0", &ObjectView{Variant: VariantCommit, Commit: &CommitView{RootTree: emptyTree}})

	t1 := adapter.put("t1", &ObjectView{Variant: VariantTag, Tag: &TagView{TargetOID: c0, TargetType: object.TargetCommit}})
	t2 := adapter.put("t2", &ObjectView{Variant: VariantTag, Tag: &TagView{TargetOID: t1, TargetType: object.TargetTag}})
	adapter.put("t3", &ObjectView{Variant: VariantTag, Tag: &TagView{TargetOID: t2, TargetType: object.TargetTag}})

	report := runFake(t, adapter, noRefs)

	if report.RepositorySize.AnnotatedTags.Count != 3 {
		t.Errorf("annotatedTags.count = %d, want 3", report.RepositorySize.AnnotatedTags.Count)
	}
	if report.HistoryStructure.MaxTagDepth != 3 {
		t.Errorf("maxTagDepth = %d, want 3", report.HistoryStructure.MaxTagDepth)
	}
}

// Scenario 6: root tree with a file, a symlink, a submodule, and a nested
// directory containing one more file.
func TestAnalyze_SubmoduleSymlinkNestedDir(t *testing.T) {
	adapter := newFakeAdapter()

	fileTxt := adapter.put("file.txt", &ObjectView{Variant: VariantBlob, Blob: &BlobView{Size: 100}})
	linkTarget := adapter.put("link-target", &ObjectView{Variant: VariantBlob, Blob: &BlobView{Size: 4}})
	nestedFile := adapter.put("dir/file", &ObjectView{Variant: VariantBlob, Blob: &BlobView{Size: 50}})
	submoduleCommit := adapter.put("submodule-head", &ObjectView{
		Variant: VariantCommit,
		Commit:  &CommitView{RootTree: adapter.put("submodule-tree", &ObjectView{Variant: VariantTree, Tree: &TreeView{}})},
	})

	dirTree := adapter.put("dir-tree", &ObjectView{
		Variant: VariantTree,
		Tree: &TreeView{
			Entries: []TreeEntryView{
				{Name: "file", Mode: object.TreeModeFile, TargetType: object.TargetBlob, TargetOID: nestedFile},
			},
		},
	})
	rootTree := adapter.put("root-tree", &ObjectView{
		Variant: VariantTree,
		Tree: &TreeView{
			Entries: []TreeEntryView{
				{Name: "file.txt", Mode: object.TreeModeFile, TargetType: object.TargetBlob, TargetOID: fileTxt},
				{Name: "link", Mode: object.TreeModeSymlink, TargetType: object.TargetSymlink, TargetOID: linkTarget},
				{Name: "sub", Mode: object.TreeModeSubmodule, TargetType: object.TargetCommit, TargetOID: submoduleCommit},
				{Name: "dir", Mode: object.TreeModeDir, TargetType: object.TargetTree, TargetOID: dirTree},
			},
		},
	})
	adapter.put("c0", &ObjectView{Variant: VariantCommit, Commit: &CommitView{RootTree: rootTree}})

	report := runFake(t, adapter, noRefs)

	want := BiggestCheckouts{
		NumDirectories: 2,
		MaxPathDepth:   2,
		MaxPathLength:  8,
		NumFiles:       2,
		TotalFileSize:  150,
		NumSymlinks:    1,
		NumSubmodules:  1,
	}
	if report.BiggestCheckouts != want {
		t.Fatalf("biggestCheckouts = %+v, want %+v", report.BiggestCheckouts, want)
	}
}

func TestAnalyze_LookupFailurePropagates(t *testing.T) {
	adapter := newFakeAdapter()
	// Register the OID in iteration order without a backing object, so
	// Lookup fails for it.
	oid := oidFor("phantom")
	adapter.order = append(adapter.order, oid)

	a := NewAnalyzer(adapter, noRefs)
	_, err := a.Analyze(context.Background())
	if err == nil {
		t.Fatal("Analyze() = nil error, want lookup failure")
	}
	if a.State() != StateFailed {
		t.Fatalf("State() = %v, want %v", a.State(), StateFailed)
	}
}

func TestAnalyze_WorkerCountOverride(t *testing.T) {
	report := runFake(t, newFakeAdapter(), noRefs, WithWorkerCount(1))
	if report.RepositorySize.Commits.Count != 0 {
		t.Fatalf("expected empty report with single worker, got %+v", report.RepositorySize)
	}
}

func TestAnalyze_ContextCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAnalyzer(newFakeAdapter(), noRefs)
	_, err := a.Analyze(ctx)
	if err == nil {
		t.Fatal("Analyze(cancelled ctx) = nil error, want failure")
	}
	if a.State() != StateFailed {
		t.Fatalf("State() = %v, want %v", a.State(), StateFailed)
	}
}

func TestAnalyzer_RunIDIsStable(t *testing.T) {
	a := NewAnalyzer(newFakeAdapter(), noRefs)
	first := a.RunID()
	second := a.RunID()
	if first != second {
		t.Fatalf("RunID changed across calls: %v vs %v", first, second)
	}
	if first.String() == "" {
		t.Fatal("RunID is empty")
	}
}
