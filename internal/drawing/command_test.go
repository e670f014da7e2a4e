package drawing

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"查看", Command{Kind: CommandQueryModel}},
		{"  查看 模型", Command{Kind: CommandQueryModel}},
		{"更换 二次元", Command{Kind: CommandSetModel, Arg: "二次元"}},
		{"更换二次元 ", Command{Kind: CommandSetModel, Arg: "二次元"}},
		{"更换", Command{Kind: CommandSetModel, Arg: ""}},
		{"一只猫", Command{Kind: CommandDraw, Arg: "一只猫"}},
		{"", Command{Kind: CommandDraw, Arg: ""}},
		{"我想查看", Command{Kind: CommandDraw, Arg: "我想查看"}},
	}
	for _, tt := range tests {
		got := Classify(tt.in)
		if got != tt.want {
			t.Errorf("Classify(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
		if again := Classify(tt.in); again != got {
			t.Errorf("Classify(%q) not idempotent: %+v then %+v", tt.in, got, again)
		}
	}
}

func TestCommandKindString(t *testing.T) {
	if CommandSetModel.String() != "set_model" || CommandQueryModel.String() != "query_model" || CommandDraw.String() != "draw" {
		t.Error("unexpected command kind names")
	}
}
