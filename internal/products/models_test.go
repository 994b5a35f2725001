package products

import "testing"

func TestStatusForQuantity(t *testing.T) {
	cases := []struct {
		quantity int
		current  string
		want     string
	}{
		{0, StatusActive, StatusOutOfStock},
		{0, StatusInactive, StatusOutOfStock},
		{0, StatusOutOfStock, StatusOutOfStock},
		{5, StatusOutOfStock, StatusActive},
		{5, StatusActive, StatusActive},
		{5, StatusInactive, StatusInactive},
	}
	for _, tc := range cases {
		if got := StatusForQuantity(tc.quantity, tc.current); got != tc.want {
			t.Errorf("StatusForQuantity(%d, %s) = %s, want %s", tc.quantity, tc.current, got, tc.want)
		}
	}
}

func TestValidCategory(t *testing.T) {
	if !ValidCategory("GPU") {
		t.Error("GPU should be a valid category")
	}
	if ValidCategory("Toaster") {
		t.Error("Toaster should not be a valid category")
	}
}
