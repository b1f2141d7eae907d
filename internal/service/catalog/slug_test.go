package catalog

import "testing"

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Áo thun Basic":          "ao-thun-basic",
		"  Đầm dự tiệc   2024 ":  "dam-du-tiec-2024",
		"Quần jean / ống rộng!!": "quan-jean-ong-rong",
		"ĐỒNG HỒ":                "dong-ho",
		"Giày 👟 thể thao":        "giay-the-thao",
		"---":                    "",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
