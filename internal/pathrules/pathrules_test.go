package pathrules

import "testing"

func TestIsProtected(t *testing.T) {
	t.Parallel()
	tests := []struct {
		path string
		want bool
	}{
		{"shelf/laptop_apple_macbookpro.1", false},
		{".git/config", true},
		{".onyo/config", true},
		{"shelf/.anchor", true},
		{"a/b/c", false},
		{".onyo/templates/empty", true},
	}
	for _, tt := range tests {
		if got := IsProtected(tt.path); got != tt.want {
			t.Errorf("IsProtected(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParseAssetLeaf(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		want    Leaf
		wantErr bool
	}{
		{"laptop_apple_macbookpro.1", Leaf{"laptop", "apple", "macbookpro", "1"}, false},
		{"laptop_apple_macbookpro.serial.with.dots", Leaf{"laptop", "apple", "macbookpro", "serial.with.dots"}, false},
		{"README", Leaf{}, true},
		{"laptop_apple.1", Leaf{}, true},
		{"_apple_macbookpro.1", Leaf{}, true},
		{"laptop__macbookpro.1", Leaf{}, true},
		{"laptop_apple_macbookpro.", Leaf{}, true},
	}
	for _, tt := range tests {
		got, err := ParseAssetLeaf(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAssetLeaf(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseAssetLeaf(%q) = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestFormatName(t *testing.T) {
	t.Parallel()
	values := map[string]string{"type": "laptop", "make": "apple", "model": "macbookpro", "serial": "1"}
	got, err := FormatName(values, DefaultNameKeys)
	if err != nil {
		t.Fatalf("FormatName() error = %v", err)
	}
	if got != "laptop_apple_macbookpro.1" {
		t.Errorf("FormatName() = %q", got)
	}

	if _, err := FormatName(map[string]string{"type": "laptop"}, DefaultNameKeys); err == nil {
		t.Error("FormatName() with missing keys should fail")
	}

	if _, err := FormatName(map[string]string{"type": "", "make": "a", "model": "b", "serial": "c"}, DefaultNameKeys); err == nil {
		t.Error("FormatName() with empty key should fail")
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		path string
		leaf string
		st   Stat
		want Class
	}{
		{"protected", ".git/config", "config", Stat{Exists: true}, Protected},
		{"absent", "shelf/missing", "missing", Stat{Exists: false}, Absent},
		{"asset file", "shelf/laptop_apple_macbookpro.1", "laptop_apple_macbookpro.1", Stat{Exists: true}, AssetFile},
		{"regular file", "shelf/README.md", "README.md", Stat{Exists: true}, Regular},
		{"asset dir", "shelf/laptop_apple_macbookpro.1", "laptop_apple_macbookpro.1", Stat{Exists: true, IsDir: true, HasSidecar: true}, AssetDir},
		{"inventory dir", "shelf", "shelf", Stat{Exists: true, IsDir: true, HasAnchor: true}, InventoryDir},
		{"plain dir", "shelf", "shelf", Stat{Exists: true, IsDir: true}, Regular},
		{"template", ".onyo/templates/empty", "empty", Stat{Exists: true, UnderTemplate: true}, Template},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.path, tt.leaf, tt.st); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsReservedKey(t *testing.T) {
	t.Parallel()
	for _, k := range []string{"directory", "is_asset_directory", "template"} {
		if !IsReservedKey(k) {
			t.Errorf("IsReservedKey(%q) = false, want true", k)
		}
	}
	if IsReservedKey("type") {
		t.Error("IsReservedKey(\"type\") = true, want false")
	}
}
